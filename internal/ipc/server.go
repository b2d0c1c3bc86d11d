package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"

	"github.com/carlosrm22/lazaro/internal/config"
	"github.com/carlosrm22/lazaro/internal/events"
	"github.com/carlosrm22/lazaro/internal/service"
)

// Connect opens the bus named in the daemon config.
func Connect(bus string) (*dbus.Conn, error) {
	if bus == config.BusSystem {
		conn, err := dbus.ConnectSystemBus()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to system bus: %w", err)
		}
		return conn, nil
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return conn, nil
}

// Serve claims the service name, exports the engine object and relays
// published events as signals until ctx is done.
func Serve(ctx context.Context, conn *dbus.Conn, svc *service.Service, eventBuffer int) error {
	reply, err := conn.RequestName(ServiceName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("failed to request name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("name %s is already taken", ServiceName)
	}

	obj := NewEngine(svc)
	if err := conn.Export(obj, dbus.ObjectPath(ObjectPath), InterfaceName); err != nil {
		return fmt.Errorf("failed to export interface: %w", err)
	}
	node := &introspect.Node{
		Name: ObjectPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    InterfaceName,
				Methods: introspect.Methods(obj),
				Signals: []introspect.Signal{{
					Name: "Event",
					Args: []introspect.Arg{{Name: "event", Type: "s"}},
				}},
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), dbus.ObjectPath(ObjectPath), "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("failed to export introspection: %w", err)
	}

	ch, unsubscribe := svc.Subscribe(eventBuffer)
	defer unsubscribe()
	return relay(ctx, conn, ch)
}

// Emitter sends a signal on the bus.
type Emitter interface {
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
}

func relay(ctx context.Context, conn Emitter, ch <-chan events.Event) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			data, err := json.Marshal(ev)
			if err != nil {
				log.Printf("Failed to encode event %d: %v", ev.Seq, err)
				continue
			}
			if err := conn.Emit(dbus.ObjectPath(ObjectPath), EventSignal, string(data)); err != nil {
				log.Printf("Failed to emit event %d: %v", ev.Seq, err)
			}
		}
	}
}

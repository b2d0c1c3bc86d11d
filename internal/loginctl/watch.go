package loginctl

import (
	"context"
	"fmt"
	"log"

	"github.com/godbus/dbus/v5"
)

const prepareForSleep = "org.freedesktop.login1.Manager.PrepareForSleep"

// SleepHandler is told when the host suspends and resumes.
type SleepHandler interface {
	HandleSleep()
	HandleWake()
}

// Watch listens for logind suspend signals on the system bus until ctx is done.
func Watch(ctx context.Context, h SleepHandler) error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer conn.Close()

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath("/org/freedesktop/login1"),
		dbus.WithMatchInterface("org.freedesktop.login1.Manager"),
		dbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		return fmt.Errorf("add match failed: %w", err)
	}

	c := make(chan *dbus.Signal, 10)
	conn.Signal(c)
	defer conn.RemoveSignal(c)

	for {
		select {
		case sig := <-c:
			dispatch(sig, h)
		case <-ctx.Done():
			return nil
		}
	}
}

func dispatch(sig *dbus.Signal, h SleepHandler) {
	if sig == nil || sig.Name != prepareForSleep || len(sig.Body) == 0 {
		return
	}
	sleeping, ok := sig.Body[0].(bool)
	if !ok {
		log.Println("PrepareForSleep: unexpected signal body")
		return
	}
	if sleeping {
		log.Println("System is going to sleep")
		h.HandleSleep()
	} else {
		log.Println("System has woken up")
		h.HandleWake()
	}
}

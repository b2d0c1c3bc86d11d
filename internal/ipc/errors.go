package ipc

import (
	"errors"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/carlosrm22/lazaro/internal/apperr"
)

// ErrorPrefix starts every typed error name sent over the bus.
const ErrorPrefix = ServiceName + ".Error."

var errorNames = map[apperr.Kind]string{
	apperr.KindValidation:     "Validation",
	apperr.KindNotFound:       "NotFound",
	apperr.KindProtected:      "Protected",
	apperr.KindPolicy:         "Policy",
	apperr.KindAlreadyActive:  "AlreadyActive",
	apperr.KindNoPendingBreak: "NoPendingBreak",
	apperr.KindNotRunning:     "NotRunning",
	apperr.KindPersistence:    "Persistence",
}

// ErrorName is the D-Bus error name for kind.
func ErrorName(kind apperr.Kind) string {
	return ErrorPrefix + errorNames[kind]
}

// ToDBusError maps typed failures to named D-Bus errors. Anything else
// becomes org.freedesktop.DBus.Error.Failed.
func ToDBusError(err error) *dbus.Error {
	if err == nil {
		return nil
	}
	kind := apperr.KindOf(err)
	if _, ok := errorNames[kind]; !ok {
		return dbus.MakeFailedError(err)
	}
	return dbus.NewError(ErrorName(kind), []interface{}{err.Error()})
}

// FromDBusError restores the typed error carried by a method reply, so
// callers can use errors.Is against the apperr sentinels.
func FromDBusError(err error) error {
	if err == nil {
		return nil
	}
	var name string
	var body []interface{}

	var value dbus.Error
	var ptr *dbus.Error
	switch {
	case errors.As(err, &ptr):
		name, body = ptr.Name, ptr.Body
	case errors.As(err, &value):
		name, body = value.Name, value.Body
	default:
		return err
	}

	if !strings.HasPrefix(name, ErrorPrefix) {
		return err
	}
	suffix := strings.TrimPrefix(name, ErrorPrefix)
	for kind, n := range errorNames {
		if n != suffix {
			continue
		}
		msg := string(kind)
		if len(body) > 0 {
			if s, ok := body[0].(string); ok {
				msg = s
			}
		}
		return &apperr.Error{Kind: kind, Msg: msg}
	}
	return err
}

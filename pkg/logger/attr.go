package logger

import "log/slog"

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Component records the emitting component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Subject records the authenticated subject identifier under the key "subject".
// If id is empty, it returns an empty Attr.
func Subject(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("subject", id)
}

// Action records an audited or authorized action name under the key "action".
func Action(name string) slog.Attr {
	return slog.String("action", name)
}

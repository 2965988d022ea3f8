// Package logging builds the structured zap logger every component uses,
// in place of bare log.Printf("[component] ...") calls, giving
// leveled, field-carrying logs.
package logging

import "go.uber.org/zap"

// New builds a production zap.Logger (JSON encoding, info level and above)
// tagged with a "component" field, so every log line names which part of
// the service emitted it.
func New(component string) (*zap.Logger, error) {
	base, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return base.With(zap.String("component", component)), nil
}

// Must is New but panics on error, for use during process startup where
// there is no sensible recovery from a broken logger.
func Must(component string) *zap.Logger {
	log, err := New(component)
	if err != nil {
		panic(err)
	}
	return log
}

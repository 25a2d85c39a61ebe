package testutil

import (
	"testing"

	"github.com/spf13/viper"
)

// ResetViper resets viper now and again when the test completes.
func ResetViper(t *testing.T) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
}

// SetViperValue sets a viper configuration value and schedules cleanup.
func SetViperValue(t *testing.T, key string, value any) {
	t.Helper()

	oldValue := viper.Get(key)
	hadValue := viper.IsSet(key)

	viper.Set(key, value)

	t.Cleanup(func() {
		if hadValue {
			viper.Set(key, oldValue)
		}
		// viper has no Unset, so an originally unset key stays set until the next Reset.
	})
}

// SQLitePath returns a database file path inside the sandbox.
func SQLitePath(env *TestEnv, name string) string {
	return env.Path(name + ".db")
}

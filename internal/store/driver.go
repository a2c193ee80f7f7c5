package store

import (
	"fmt"
	"sort"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DialectorFactory opens a gorm.Dialector for a DSN
type DialectorFactory func(dsn string) gorm.Dialector

// dialectors maps DATABASE_DRIVER values to dialector factories.
// "postgresql" is accepted as an alias for "postgres".
var dialectors = map[string]DialectorFactory{
	"sqlite":     sqlite.Open,
	"postgres":   postgres.Open,
	"postgresql": postgres.Open,
}

// GetDialector returns the dialector registered for driver
func GetDialector(driver, dsn string) (gorm.Dialector, error) {
	factory, ok := dialectors[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
	return factory(dsn), nil
}

// SupportedDrivers lists the registered driver names in sorted order
func SupportedDrivers() []string {
	names := make([]string, 0, len(dialectors))
	for name := range dialectors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

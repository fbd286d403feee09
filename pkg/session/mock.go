package session

import "github.com/devicelab-dev/crashcheck/pkg/driver/mock"

// MockFactory returns a Factory backed by the simulated sample app. Every
// driver it creates is appended to *created when created is non-nil.
func MockFactory(cfg mock.Config, created *[]*mock.Driver) Factory {
	factory := mock.Factory(cfg, func(d *mock.Driver) {
		if created != nil {
			*created = append(*created, d)
		}
	})
	return func(caps map[string]interface{}) (Remote, error) {
		d, err := factory(caps)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
}

package ports

import "go.trai.ch/cigen/internal/core/domain"

// SettingsLoader resolves the settings of an invocation.
//
//go:generate go run go.uber.org/mock/mockgen -source=settings_loader.go -destination=mocks/mock_settings_loader.go -package=mocks
type SettingsLoader interface {
	// Load merges defaults, environment, settings files and assignments, lowest precedence first.
	Load(req domain.SettingsRequest) (*domain.Settings, error)
}

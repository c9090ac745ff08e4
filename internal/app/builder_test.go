package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/cigen/internal/app"
	"go.trai.ch/cigen/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestNewComponents(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	a := app.New(log, nil, nil, nil, nil, nil)

	components := app.NewComponents(a, log)

	assert.Same(t, a, components.App)
	assert.Equal(t, log, components.Logger)
}

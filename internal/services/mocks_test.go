package services_test

import (
	"astrowell_go_backend/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockReadingGenerator struct {
	mock.Mock
}

func (m *MockReadingGenerator) Greeting(profile models.BirthProfile) string {
	args := m.Called(profile)
	return args.String(0)
}

func (m *MockReadingGenerator) Reply(profile models.BirthProfile, question string) string {
	args := m.Called(profile, question)
	return args.String(0)
}

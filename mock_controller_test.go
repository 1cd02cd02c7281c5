package main

import (
	"context"

	"github.com/stretchr/testify/mock"

	"i4.energy/across/headsetctl/headset"
)

type mockController struct {
	mock.Mock
}

var _ Controller = (*mockController)(nil)

func (m *mockController) State() headset.State {
	return m.Called().Get(0).(headset.State)
}

func (m *mockController) Connect(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockController) Disconnect(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockController) QueryStatus(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockController) SetANC(ctx context.Context, enabled bool) error {
	return m.Called(ctx, enabled).Error(0)
}

func (m *mockController) SetTransparency(ctx context.Context, enabled bool) error {
	return m.Called(ctx, enabled).Error(0)
}

func (m *mockController) ToggleANC(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockController) ToggleTransparency(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockController) AdjustVolume(ctx context.Context, direction headset.VolumeDirection, steps int) error {
	return m.Called(ctx, direction, steps).Error(0)
}

func (m *mockController) SetDeviceName(ctx context.Context, name string) error {
	return m.Called(ctx, name).Error(0)
}

func (m *mockController) ResetDeviceName(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockController) BluetoothAddress(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockController) Send(ctx context.Context, instruction string) (string, error) {
	args := m.Called(ctx, instruction)
	return args.String(0), args.Error(1)
}

// Subscribe lets mockController stand in for the session in keepConnected.
func (m *mockController) Subscribe(o headset.Observer) func() {
	return m.Called(o).Get(0).(func())
}

package registers_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/registers"
)

type MockBus struct {
	mock.Mock
}

func (m *MockBus) Acquire(ctx context.Context, address uint16) (registers.Session, error) {
	args := m.Called(ctx, address)
	if s, ok := args.Get(0).(registers.Session); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockSession struct {
	mock.Mock
}

func (m *MockSession) Write(ctx context.Context, buffer []byte) error {
	args := m.Called(ctx, buffer)
	return args.Error(0)
}

func (m *MockSession) Read(ctx context.Context, buffer []byte) error {
	args := m.Called(ctx, buffer)
	if data, ok := args.Get(0).([]byte); ok {
		copy(buffer, data)
	}
	return args.Error(1)
}

func (m *MockSession) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestRegister_ReleaseErrors(t *testing.T) {
	errRelease := errors.New("release failed")
	errRead := errors.New("read failed")

	t.Run("release failure alone", func(t *testing.T) {
		bus, session := new(MockBus), new(MockSession)
		bus.On("Acquire", mock.Anything, uint16(0x40)).Return(session, nil).Once()
		session.On("Write", mock.Anything, []byte{0x03}).Return(nil).Once()
		session.On("Read", mock.Anything, mock.Anything).Return([]byte{0x2A}, nil).Once()
		session.On("Release", mock.Anything).Return(errRelease).Once()

		v, err := registers.New(bus, 0x40).Read8(context.Background(), 0x03)
		assert.Equal(t, uint8(0x2A), v)
		var txErr *registers.TransactionError
		require.ErrorAs(t, err, &txErr)
		assert.Equal(t, registers.OpRelease, txErr.Op)
		assert.ErrorIs(t, err, errRelease)
		bus.AssertExpectations(t)
		session.AssertExpectations(t)
	})

	t.Run("release failure after read failure", func(t *testing.T) {
		bus, session := new(MockBus), new(MockSession)
		bus.On("Acquire", mock.Anything, uint16(0x40)).Return(session, nil).Once()
		session.On("Write", mock.Anything, []byte{0x03}).Return(nil).Once()
		session.On("Read", mock.Anything, mock.Anything).Return(nil, errRead).Once()
		session.On("Release", mock.Anything).Return(errRelease).Once()

		err := registers.New(bus, 0x40).ReadBytes(context.Background(), 0x03, make([]byte, 2))
		assert.ErrorIs(t, err, errRead)
		assert.ErrorIs(t, err, errRelease)
		session.AssertExpectations(t)
	})

	t.Run("release survives cancelled context", func(t *testing.T) {
		bus, session := new(MockBus), new(MockSession)
		ctx, cancel := context.WithCancel(context.Background())
		bus.On("Acquire", mock.Anything, uint16(0x40)).Return(session, nil).Once()
		session.On("Write", mock.Anything, []byte{0x01}).Run(func(mock.Arguments) { cancel() }).Return(context.Canceled).Once()
		session.On("Release", mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })).Return(nil).Once()

		err := registers.New(bus, 0x40).Write8(ctx, 0x01, 0xFF)
		assert.ErrorIs(t, err, context.Canceled)
		session.AssertExpectations(t)
	})

	t.Run("no data phase once cancelled", func(t *testing.T) {
		bus, session := new(MockBus), new(MockSession)
		ctx, cancel := context.WithCancel(context.Background())
		bus.On("Acquire", mock.Anything, uint16(0x40)).Return(session, nil).Once()
		session.On("Write", mock.Anything, []byte{0x03}).Run(func(mock.Arguments) { cancel() }).Return(nil).Once()
		session.On("Release", mock.Anything).Return(nil).Once()

		_, err := registers.New(bus, 0x40).Read16(ctx, 0x03)
		var txErr *registers.TransactionError
		require.ErrorAs(t, err, &txErr)
		assert.Equal(t, registers.OpRead, txErr.Op)
		assert.ErrorIs(t, err, context.Canceled)
		session.AssertNotCalled(t, "Read", mock.Anything, mock.Anything)
		session.AssertExpectations(t)
	})
}

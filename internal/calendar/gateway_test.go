package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateway_SameInstantWidensToDay(t *testing.T) {
	fp := &fakeProvider{name: ProviderGoogle, appts: []Appointment{{ID: "a"}}}
	gw := NewGateway(fp, nil, nil)

	d, err := ParseDate("2024-01-01")
	require.NoError(t, err)

	single, err := gw.ListAppointments(context.Background(), d, d, "tok")
	require.NoError(t, err)
	singleStart, singleEnd := fp.gotStart, fp.gotEnd

	ranged, err := gw.ListAppointments(context.Background(), StartOfDay(d), EndOfDay(d), "tok")
	require.NoError(t, err)

	assert.Equal(t, single, ranged)
	assert.Equal(t, StartOfDay(d), singleStart)
	assert.Equal(t, EndOfDay(d), singleEnd)
	assert.Equal(t, singleStart, fp.gotStart)
	assert.Equal(t, singleEnd, fp.gotEnd)
}

func TestGateway_RangeIsPassedThrough(t *testing.T) {
	fp := &fakeProvider{name: ProviderGoogle}
	gw := NewGateway(fp, nil, nil)

	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.Local)
	end := time.Date(2024, 1, 3, 17, 0, 0, 0, time.Local)
	_, err := gw.ListAppointments(context.Background(), start, end, "tok")
	require.NoError(t, err)
	assert.Equal(t, start, fp.gotStart)
	assert.Equal(t, end, fp.gotEnd)
}

func TestGateway_PropagatesErrors(t *testing.T) {
	boom := errors.New("upstream down")
	fp := &fakeProvider{name: ProviderGoogle, err: boom, exchangeErr: ErrAuthExchange}
	gw := NewGateway(fp, nil, nil)

	_, err := gw.ListAppointments(context.Background(), time.Now(), time.Now().Add(time.Hour), "tok")
	assert.ErrorIs(t, err, boom)

	_, err = gw.ExchangeCode(context.Background(), "code")
	assert.ErrorIs(t, err, ErrAuthExchange)
}

func TestGateway_Forget(t *testing.T) {
	fp := &fakeProvider{name: ProviderGoogle}
	gw := NewGateway(fp, nil, nil)
	gw.Forget("tok")
	assert.Equal(t, []string{"tok"}, fp.forgotten)
}

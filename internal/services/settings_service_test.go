package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessRules_Defaults(t *testing.T) {
	svc := NewSettingsService(&stubSettingRepo{}, nil)

	rules, err := svc.BusinessRules()
	require.NoError(t, err)

	assert.Equal(t, "09:00:00", rules.OpeningTime)
	assert.Equal(t, "23:00:00", rules.ClosingTime)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, rules.BusinessDays)
	assert.Equal(t, 30, rules.MinReservationMinutes)
	assert.Equal(t, 240, rules.MaxReservationMinutes)
	assert.Equal(t, 1, rules.MinAdvanceHours)
	assert.Equal(t, 14, rules.MaxAdvanceDays)
}

func TestBusinessRules_Overrides(t *testing.T) {
	repo := &stubSettingRepo{}
	repo.set(SettingOpeningTime, "10:00")
	repo.set(SettingClosingTime, "22:30:00")
	repo.set(SettingBusinessDays, "6,0")
	repo.set(SettingMinReservationMins, "60")
	repo.set(SettingMaxAdvanceDays, "30")
	svc := NewSettingsService(repo, nil)

	rules, err := svc.BusinessRules()
	require.NoError(t, err)

	// "HH:MM" values are padded so they compare lexicographically.
	assert.Equal(t, "10:00:00", rules.OpeningTime)
	assert.Equal(t, "22:30:00", rules.ClosingTime)
	// Sunday given as 0 is normalized to ISO 7.
	assert.Equal(t, []int{6, 7}, rules.BusinessDays)
	assert.Equal(t, 60, rules.MinReservationMinutes)
	assert.Equal(t, 30, rules.MaxAdvanceDays)

	assert.True(t, rules.IsBusinessDay(7))
	assert.False(t, rules.IsBusinessDay(1))
}

func TestBusinessRules_IgnoresUnparseableValues(t *testing.T) {
	repo := &stubSettingRepo{}
	repo.set(SettingMinReservationMins, "abc")
	repo.set(SettingMaxReservationMins, "-5")
	repo.set(SettingBusinessDays, "1,2,99")
	svc := NewSettingsService(repo, nil)

	rules, err := svc.BusinessRules()
	require.NoError(t, err)

	// Broken rows fall back to the defaults instead of failing the load.
	assert.Equal(t, 30, rules.MinReservationMinutes)
	assert.Equal(t, 240, rules.MaxReservationMinutes)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, rules.BusinessDays)
}

func TestUpsertSetting_Validation(t *testing.T) {
	svc := NewSettingsService(&stubSettingRepo{}, nil)

	_, err := svc.UpsertSetting(UpsertSettingRequest{SettingKey: "  "})
	assert.ErrorIs(t, err, ErrSettingValidation)

	_, err = svc.UpsertSetting(UpsertSettingRequest{SettingKey: "tax_rate", ValueType: "decimal"})
	assert.ErrorIs(t, err, ErrSettingValidation)
}

func TestUpsertSetting_DefaultsValueType(t *testing.T) {
	repo := &stubSettingRepo{}
	svc := NewSettingsService(repo, nil)

	setting, err := svc.UpsertSetting(UpsertSettingRequest{
		SettingKey:   SettingOpeningTime,
		SettingValue: strPtr("10:00:00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "string", setting.ValueType)

	stored, err := svc.GetSettingByKey(SettingOpeningTime)
	require.NoError(t, err)
	require.NotNil(t, stored.SettingValue)
	assert.Equal(t, "10:00:00", *stored.SettingValue)
}

func TestGetSettingByKey_NotFound(t *testing.T) {
	svc := NewSettingsService(&stubSettingRepo{}, nil)

	_, err := svc.GetSettingByKey("no_such_key")
	assert.ErrorIs(t, err, ErrSettingNotFound)
}

func TestDeleteSetting(t *testing.T) {
	repo := &stubSettingRepo{}
	repo.set(SettingTaxRate, "0.12")
	svc := NewSettingsService(repo, nil)

	require.NoError(t, svc.DeleteSetting(SettingTaxRate))
	assert.ErrorIs(t, svc.DeleteSetting(SettingTaxRate), ErrSettingNotFound)
}

package services

import (
	"errors"
	"fmt"
	"time"

	"astrowell_go_backend/internal/store"

	"github.com/rs/zerolog/log"
)

const (
	creditsKey          = "credits"
	creditsLastResetKey = "creditsLastReset"
)

// ErrInsufficientCredits is returned when a spend would take the
// balance below zero. The spend is rejected entirely; the balance is
// never partially applied.
var ErrInsufficientCredits = errors.New("insufficient credits")

// CreditLedger owns the spendable balance. Every mutation is
// persisted immediately. The balance floors at zero and rolls back to
// the daily allotment on the first access of a new calendar day.
type CreditLedger interface {
	Balance(today time.Time) (int, error)
	Spend(amount int, today time.Time) (int, error)
	SetBalance(value int) error
	SeedIfAbsent(today time.Time) (int, error)
	Clear() error
}

// DefaultCreditLedger implements CreditLedger on a Store.
type DefaultCreditLedger struct {
	store          store.Store
	dailyAllotment int
}

func NewCreditLedger(s store.Store, dailyAllotment int) CreditLedger {
	return &DefaultCreditLedger{store: s, dailyAllotment: dailyAllotment}
}

// maybeReset applies the daily replenishment before any read or
// spend: when the stored last-reset date is an earlier calendar day
// than today, the balance goes back to the full allotment. Returns
// the effective balance and whether a balance exists at all.
func (l *DefaultCreditLedger) maybeReset(today time.Time) (int, bool, error) {
	var balance int
	ok, err := l.store.Get(creditsKey, &balance)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}

	var stamp string
	hasStamp, err := l.store.Get(creditsLastResetKey, &stamp)
	if err != nil {
		return 0, false, err
	}
	if hasStamp {
		if last, perr := time.Parse(dateLayout, stamp); perr == nil {
			if daysBetween(last, today) > 0 {
				balance = l.dailyAllotment
				if err := l.store.Set(creditsKey, balance); err != nil {
					return 0, false, err
				}
				log.Info().Int("credits", balance).Msg("daily credit allotment applied")
			} else {
				return balance, true, nil
			}
		}
	}
	// Stamp today for a balance that predates the stamp or was reset.
	if err := l.store.Set(creditsLastResetKey, dateOnly(today).Format(dateLayout)); err != nil {
		return 0, false, err
	}
	return balance, true, nil
}

func (l *DefaultCreditLedger) Balance(today time.Time) (int, error) {
	balance, _, err := l.maybeReset(today)
	return balance, err
}

func (l *DefaultCreditLedger) Spend(amount int, today time.Time) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("spend amount must be positive, got %d", amount)
	}
	balance, _, err := l.maybeReset(today)
	if err != nil {
		return 0, err
	}
	if balance < amount {
		return balance, ErrInsufficientCredits
	}
	balance -= amount
	if err := l.store.Set(creditsKey, balance); err != nil {
		return 0, err
	}
	return balance, nil
}

func (l *DefaultCreditLedger) SetBalance(value int) error {
	if value < 0 {
		value = 0
	}
	return l.store.Set(creditsKey, value)
}

// SeedIfAbsent writes the daily allotment only when no balance key
// exists; an existing balance is left untouched.
func (l *DefaultCreditLedger) SeedIfAbsent(today time.Time) (int, error) {
	var balance int
	ok, err := l.store.Get(creditsKey, &balance)
	if err != nil {
		return 0, err
	}
	if ok {
		return balance, nil
	}
	balance = l.dailyAllotment
	if err := l.store.Set(creditsKey, balance); err != nil {
		return 0, err
	}
	if err := l.store.Set(creditsLastResetKey, dateOnly(today).Format(dateLayout)); err != nil {
		return 0, err
	}
	return balance, nil
}

func (l *DefaultCreditLedger) Clear() error {
	if err := l.store.Remove(creditsKey); err != nil {
		return err
	}
	return l.store.Remove(creditsLastResetKey)
}

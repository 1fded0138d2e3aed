package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jmtruffa/finsim/calendar"
	"github.com/jmtruffa/finsim/finance"
)

var ErrNotFound = errors.New("not found")

// Seed is the content of a seed file.
type Seed struct {
	Instruments []Instrument
	Holidays    []calendar.Holiday
}

type seedFile struct {
	Instruments []struct {
		Ticker      string `json:"ticker"`
		Description string `json:"description"`
		DayCount    string `json:"day_count"`
		Cashflows   []struct {
			Date   string  `json:"date"`
			Amount float64 `json:"amount"`
		} `json:"cashflows"`
	} `json:"instruments"`
	Holidays []struct {
		Date string `json:"date"`
		Name string `json:"name"`
	} `json:"holidays"`
}

// ParseSeed decodes a seed document. Tickers are upper-cased.
func ParseSeed(data []byte) (Seed, error) {
	var file seedFile
	if err := json.Unmarshal(data, &file); err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}

	var seed Seed
	for _, in := range file.Instruments {
		ticker := strings.ToUpper(strings.TrimSpace(in.Ticker))
		if ticker == "" {
			return Seed{}, errors.New("seed instrument without ticker")
		}
		dayCount, err := finance.ParseDayCount(in.DayCount)
		if err != nil {
			return Seed{}, fmt.Errorf("instrument %s: %w", ticker, err)
		}
		inst := Instrument{Ticker: ticker, Description: in.Description, DayCount: dayCount}
		for _, cf := range in.Cashflows {
			date, err := time.Parse(finance.DateFormat, cf.Date)
			if err != nil {
				return Seed{}, fmt.Errorf("instrument %s: %w", ticker, err)
			}
			inst.Cashflows = append(inst.Cashflows, finance.DatedCashFlow{Date: date, Amount: cf.Amount})
		}
		seed.Instruments = append(seed.Instruments, inst)
	}

	for _, h := range file.Holidays {
		date, err := time.Parse(finance.DateFormat, h.Date)
		if err != nil {
			return Seed{}, fmt.Errorf("holiday: %w", err)
		}
		seed.Holidays = append(seed.Holidays, calendar.Holiday{Date: date, Name: h.Name})
	}
	return seed, nil
}

// SeedFromFile loads a seed file into the database. Existing instruments are replaced by
// ticker; nothing is deleted.
func (r *Repository) SeedFromFile(ctx context.Context, path string) (Seed, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, err
	}
	seed, err := ParseSeed(payload)
	if err != nil {
		return Seed{}, err
	}
	for i := range seed.Instruments {
		if _, err := r.SaveInstrument(ctx, &seed.Instruments[i]); err != nil {
			return Seed{}, fmt.Errorf("seed instrument %s: %w", seed.Instruments[i].Ticker, err)
		}
	}
	for _, h := range seed.Holidays {
		if err := r.AddHoliday(ctx, h); err != nil {
			return Seed{}, err
		}
	}
	return seed, nil
}

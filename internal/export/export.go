// Package export renders read-side reports of the auction state as
// delimited text. Reports are pure projections: they never mutate the
// ledger and can be regenerated at any time.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/avisingh/spl-auction/internal/models"
)

// lowBudgetThreshold marks teams running out of funds in the summary.
const lowBudgetThreshold = 500

// Players renders the full catalog: one row per player with sale state.
func Players(players []models.Player, teams []models.Team) ([]byte, error) {
	names := teamNames(teams)

	return render(func(w *csv.Writer) error {
		if err := w.Write([]string{"ID", "Name", "Flat", "Role", "Batting", "Bowling", "Base Price", "Status", "Sold To", "Sold Price"}); err != nil {
			return err
		}
		for _, p := range players {
			soldTo, soldPrice := "", ""
			if p.SoldTo != nil {
				soldTo = names[*p.SoldTo]
			}
			if p.SoldPrice != nil {
				soldPrice = strconv.Itoa(*p.SoldPrice)
			}
			row := []string{
				strconv.Itoa(p.ID), p.Name, p.FlatNo, string(p.Role),
				p.BattingStyle, p.BowlingStyle, strconv.Itoa(p.BasePrice),
				string(p.Status), soldTo, soldPrice,
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// Sold renders only sold players, with buyer and price.
func Sold(players []models.Player, teams []models.Team) ([]byte, error) {
	names := teamNames(teams)

	return render(func(w *csv.Writer) error {
		if err := w.Write([]string{"ID", "Name", "Flat", "Role", "Sold To", "Sold Price"}); err != nil {
			return err
		}
		for _, p := range players {
			if p.Status != models.PlayerStatusSold {
				continue
			}
			soldTo, soldPrice := "", ""
			if p.SoldTo != nil {
				soldTo = names[*p.SoldTo]
			}
			if p.SoldPrice != nil {
				soldPrice = strconv.Itoa(*p.SoldPrice)
			}
			if err := w.Write([]string{strconv.Itoa(p.ID), p.Name, p.FlatNo, string(p.Role), soldTo, soldPrice}); err != nil {
				return err
			}
		}
		return nil
	})
}

// TeamRosters renders one row per roster slot across all teams.
func TeamRosters(teams []models.Team) ([]byte, error) {
	return render(func(w *csv.Writer) error {
		if err := w.Write([]string{"Team", "Slot", "Player", "Flat", "Role", "Captain", "Price"}); err != nil {
			return err
		}
		for _, t := range teams {
			for i, e := range t.Players {
				captain := ""
				if e.Captain {
					captain = "C"
				}
				price := ""
				if e.SoldPrice != nil {
					price = strconv.Itoa(*e.SoldPrice)
				}
				if err := w.Write([]string{t.Name, strconv.Itoa(i + 1), e.Name, e.FlatNo, string(e.Role), captain, price}); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Summary renders per-team spend, remaining budget and roster fill.
func Summary(teams []models.Team, rosterCap int) ([]byte, error) {
	return render(func(w *csv.Writer) error {
		if err := w.Write([]string{"Team", "Short Name", "Players", "Spent", "Budget Left", "Low Budget"}); err != nil {
			return err
		}
		for _, t := range teams {
			spent := 0
			for _, e := range t.Players {
				if e.SoldPrice != nil {
					spent += *e.SoldPrice
				}
			}
			low := ""
			if t.Budget < lowBudgetThreshold {
				low = "yes"
			}
			row := []string{
				t.Name, t.ShortName,
				fmt.Sprintf("%d/%d", len(t.Players), rosterCap),
				strconv.Itoa(spent), strconv.Itoa(t.Budget), low,
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func teamNames(teams []models.Team) map[int]string {
	names := make(map[int]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}
	return names
}

func render(fill func(*csv.Writer) error) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := fill(w); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush report: %w", err)
	}
	return buf.Bytes(), nil
}

package report

import (
	"fmt"
	"strconv"

	"github.com/showbase-dev/showbase/backend/internal/domain"
)

const (
	dateLayout = "01/02/2006"
	timeLayout = "03:04 PM"
)

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func showLabel(name string, number int64, accountManager string) string {
	return fmt.Sprintf("%s/%d/%s", name, number, accountManager)
}

func TimesheetTable(shifts []*domain.Shift) *Table {
	t := &Table{
		Title:   "timesheet",
		Headers: []string{"Date", "Show", "Location", "Times", "Hours", "Worker"},
		Rows:    make([][]string, 0, len(shifts)+1),
	}

	var total float64
	for _, s := range shifts {
		total += s.Hours()
		t.Rows = append(t.Rows, []string{
			s.Start.Format(dateLayout),
			showLabel(s.ShowName, s.ShowNumber, s.AccountManager),
			s.Location,
			s.Start.Format(timeLayout) + " - " + s.End.Format(timeLayout),
			money(s.Hours()),
			s.WorkerName,
		})
	}
	t.Rows = append(t.Rows, []string{"Total", "", "", "", money(total), ""})

	return t
}

func ExpenseTable(expenses []*domain.Expense) *Table {
	t := &Table{
		Title:   "expenses",
		Headers: []string{"Receipt Number", "Date", "Show", "Net", "HST", "Total"},
		Rows:    make([][]string, 0, len(expenses)+1),
	}

	var net, hst float64
	for _, e := range expenses {
		net += e.Net
		hst += e.HST
		t.Rows = append(t.Rows, []string{
			e.ReceiptNumber,
			e.Date.Format("2006-01-02"),
			showLabel(e.ShowName, e.ShowNumber, e.AccountManager),
			money(e.Net),
			money(e.HST),
			money(e.Total()),
		})
	}
	t.Rows = append(t.Rows, []string{"Total", "", "", money(net), money(hst), money(net + hst)})

	return t
}

func EventTable(events []*domain.Event) *Table {
	t := &Table{
		Title:   "events",
		Headers: []string{"Show Name", "Show Number", "Account Manager", "Location", "Status"},
		Rows:    make([][]string, 0, len(events)),
	}

	for _, e := range events {
		status := "Inactive"
		if e.Active {
			status = "Active"
		}
		t.Rows = append(t.Rows, []string{
			e.ShowName,
			strconv.FormatInt(e.ShowNumber, 10),
			e.AccountManagerName,
			e.Location,
			status,
		})
	}

	return t
}

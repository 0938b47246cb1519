package export

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tealeg/xlsx/v3"

	"github.com/menosense/portal/pointer"
	"github.com/menosense/portal/profiles"
	"github.com/menosense/portal/store"
)

const (
	ReportSheetNameProfiles = "Profiles"
	ReportTimeFormat        = "2006-01-02 15:04"
	DefaultBatchSize        = 100
)

var reportHeader = []string{"Uid", "Email", "Display Name", "First Name", "Last Name", "Age", "Profession", "Photo", "Created", "Updated"}

type Report struct {
	profiles []*profiles.Profile
}

func NewReport(list []*profiles.Profile) Report {
	return Report{profiles: list}
}

func (r Report) Generate() (*xlsx.File, error) {
	report := xlsx.NewFile()
	sh, err := report.AddSheet(ReportSheetNameProfiles)
	if err != nil {
		return nil, err
	}

	headerRow := sh.AddRow()
	for _, title := range reportHeader {
		headerRow.AddCell().SetValue(title)
	}

	for _, profile := range r.profiles {
		addProfileRow(sh, profile)
	}

	return report, nil
}

func addProfileRow(sh *xlsx.Sheet, profile *profiles.Profile) {
	age := ""
	if profile.Age != nil {
		age = strconv.Itoa(*profile.Age)
	}

	row := sh.AddRow()
	row.AddCell().SetValue(profile.Uid)
	row.AddCell().SetValue(profile.Email)
	row.AddCell().SetValue(pointer.ToString(profile.DisplayName))
	row.AddCell().SetValue(pointer.ToString(profile.FirstName))
	row.AddCell().SetValue(pointer.ToString(profile.LastName))
	row.AddCell().SetValue(age)
	row.AddCell().SetValue(pointer.ToString(profile.Profession))
	row.AddCell().SetValue(pointer.ToString(profile.Img))
	row.AddCell().SetValue(formatTime(profile.CreatedTime))
	row.AddCell().SetValue(formatTime(profile.UpdatedTime))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(ReportTimeFormat)
}

// Collect pages through all stored profiles
func Collect(ctx context.Context, service profiles.Service, batchSize int) ([]*profiles.Profile, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var result []*profiles.Profile
	page := store.DefaultPagination().WithLimit(batchSize)
	for {
		list, err := service.List(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("profiles list error: %w", err)
		}
		result = append(result, list...)

		if len(list) < page.Limit {
			break
		}
		page = page.WithOffset(page.Offset + page.Limit)
	}

	return result, nil
}

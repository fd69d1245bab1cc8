package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/yukikurage/sprint-planner-api/internal/models"
)

// ErrInvalidHolidayFile wraps every decoding or validation failure of a holiday file.
var ErrInvalidHolidayFile = errors.New("invalid holiday file")

// HolidayFile is the TOML layout of a holiday calendar file:
//
//	[[location]]
//	code = "de-by"
//	name = "Bavaria"
//
//	  [[location.holiday]]
//	  date = "2025-01-01"
//	  name = "New Year"
type HolidayFile struct {
	Locations []HolidayLocation `toml:"location"`
}

type HolidayLocation struct {
	Code     string         `toml:"code"`
	Name     string         `toml:"name"`
	Holidays []HolidayEntry `toml:"holiday"`
}

type HolidayEntry struct {
	Date string `toml:"date"`
	Name string `toml:"name"`
}

// LoadHolidayFile reads a TOML holiday calendar from path.
func LoadHolidayFile(path string) ([]models.Location, error) {
	var file HolidayFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrInvalidHolidayFile, path, err)
	}
	return file.ToLocations()
}

// ParseHolidays decodes a TOML holiday calendar from data.
func ParseHolidays(data string) ([]models.Location, error) {
	var file HolidayFile
	if _, err := toml.Decode(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHolidayFile, err)
	}
	return file.ToLocations()
}

// ToLocations validates the file and converts it into persisted locations.
func (f HolidayFile) ToLocations() ([]models.Location, error) {
	locations := make([]models.Location, 0, len(f.Locations))
	seen := make(map[string]struct{}, len(f.Locations))
	for _, loc := range f.Locations {
		code := strings.TrimSpace(loc.Code)
		if code == "" {
			return nil, fmt.Errorf("%w: location without code", ErrInvalidHolidayFile)
		}
		if _, dup := seen[code]; dup {
			return nil, fmt.Errorf("%w: duplicate location %q", ErrInvalidHolidayFile, code)
		}
		seen[code] = struct{}{}

		name := loc.Name
		if name == "" {
			name = code
		}
		out := models.Location{Code: code, Name: name}
		for _, h := range loc.Holidays {
			date, err := time.Parse(time.DateOnly, strings.TrimSpace(h.Date))
			if err != nil {
				return nil, fmt.Errorf("%w: location %s: invalid date %q", ErrInvalidHolidayFile, code, h.Date)
			}
			out.Holidays = append(out.Holidays, models.Holiday{
				LocationCode: code,
				Date:         date,
				Name:         h.Name,
			})
		}
		locations = append(locations, out)
	}
	return locations, nil
}

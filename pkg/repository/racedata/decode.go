package racedata

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/oj"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/mpapenbr/lapviewer/pkg/model"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// field names as used by the race feeds
const (
	fieldBib      = "Bib"
	fieldPlace    = "Place"
	fieldName     = "Name"
	fieldAge      = "Age"
	fieldState    = "State"
	fieldLaps     = "Laps"
	fieldMiles    = "Miles"
	fieldKM       = "KM"
	fieldRaceTime = "RaceTime"
	fieldFile     = "File"
	fieldLapSplit = "Lap Split"
	fieldLapAlias = "LapSplit"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported feed format")
	ErrNoRecords         = errors.New("feed does not contain a list of records")
)

type rawRecord = map[string]any

// FormatOf derives the feed format from the extension of a path or URL.
// Sources without extension are treated as JSON.
func FormatOf(source string) (Format, error) {
	p := source
	if u, err := url.Parse(source); err == nil && u.Scheme != "" && u.Host != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case "", ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, source)
	}
}

func decodeRaw(data []byte, format Format) ([]rawRecord, error) {
	switch format {
	case FormatJSON:
		return decodeJSON(data)
	case FormatYAML:
		return decodeYAML(data)
	case FormatCSV:
		return decodeCSV(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func decodeJSON(data []byte) ([]rawRecord, error) {
	obj, err := oj.Parse(data)
	if err != nil {
		return nil, err
	}
	list, ok := obj.([]any)
	if !ok {
		return nil, ErrNoRecords
	}
	ret := make([]rawRecord, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			ret = append(ret, m)
		} else {
			// keeps the position, the record is quarantined later
			ret = append(ret, nil)
		}
	}
	return ret, nil
}

func decodeYAML(data []byte) ([]rawRecord, error) {
	var ret []rawRecord
	if err := yaml.Unmarshal(data, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

func decodeCSV(data []byte) ([]rawRecord, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []rawRecord{}, nil
		}
		return nil, err
	}
	ret := make([]rawRecord, 0)
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		rec := rawRecord{}
		for i, col := range header {
			if i < len(row) {
				rec[strings.TrimSpace(col)] = row[i]
			}
		}
		ret = append(ret, rec)
	}
	return ret, nil
}

// DecodeResults converts the feed into result records. Records without a
// usable Bib are quarantined, their count is returned.
func DecodeResults(data []byte, format Format) ([]model.ResultRecord, int, error) {
	raw, err := decodeRaw(data, format)
	if err != nil {
		return nil, 0, err
	}
	ret := make([]model.ResultRecord, 0, len(raw))
	quarantined := 0
	for _, rec := range raw {
		bib, ok := toInt(rec[fieldBib])
		if !ok {
			quarantined++
			continue
		}
		place, _ := toInt(rec[fieldPlace])
		age, _ := toInt(rec[fieldAge])
		laps, _ := toInt(rec[fieldLaps])
		ret = append(ret, model.ResultRecord{
			Bib:      bib,
			Place:    place,
			Name:     toString(rec[fieldName]),
			Age:      age,
			State:    toString(rec[fieldState]),
			Laps:     laps,
			Miles:    toDecimal(rec[fieldMiles]),
			KM:       toDecimal(rec[fieldKM]),
			RaceTime: toString(rec[fieldRaceTime]),
		})
	}
	return ret, quarantined, nil
}

// DecodeLaps converts the feed into lap records. Records without a usable
// File are quarantined, their count is returned. A missing split is kept
// as empty string, it keeps its lap position.
func DecodeLaps(data []byte, format Format) ([]model.LapRecord, int, error) {
	raw, err := decodeRaw(data, format)
	if err != nil {
		return nil, 0, err
	}
	ret := make([]model.LapRecord, 0, len(raw))
	quarantined := 0
	for _, rec := range raw {
		file, ok := toInt(rec[fieldFile])
		if !ok {
			quarantined++
			continue
		}
		split, found := rec[fieldLapSplit]
		if !found {
			split = rec[fieldLapAlias]
		}
		ret = append(ret, model.LapRecord{File: file, LapSplit: toString(split)})
	}
	return ret, quarantined, nil
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) {
			return int(x), true
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int, int64:
		return fmt.Sprintf("%d", x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func toDecimal(v any) decimal.Decimal {
	switch x := v.(type) {
	case int:
		return decimal.NewFromInt(int64(x))
	case int64:
		return decimal.NewFromInt(x)
	case float64:
		return decimal.NewFromFloat(x)
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(x)); err == nil {
			return d
		}
	}
	return decimal.Zero
}

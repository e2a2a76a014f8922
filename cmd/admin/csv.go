package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	models "github.com/RoGogDBD/sysmon-uploader/internal/model"
)

// keysCSVHeader порядок колонок файла импорта ключей.
var keysCSVHeader = []string{
	"keyName", "dataType", "normalMin", "normalMax", "warningMin", "warningMax",
	"missingDataAllowance", "emailAlertMin", "emailAlertMax",
}

// parseKeysCSV читает ключи из CSV с заголовком keysCSVHeader.
//
// Пустые ячейки пропускаются. Диапазон отправляется только если заданы оба конца.
func parseKeysCSV(r io.Reader) ([]models.Key, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(keysCSVHeader)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i, name := range keysCSVHeader {
		if !strings.EqualFold(strings.TrimSpace(header[i]), name) {
			return nil, fmt.Errorf("csv column %d is %q, want %q", i+1, header[i], name)
		}
	}

	var keys []models.Key
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}

		nums := make([]*float64, len(rec))
		for i := 2; i < len(rec); i++ {
			cell := strings.TrimSpace(rec[i])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: column %s: %q is not a number", line, keysCSVHeader[i], cell)
			}
			nums[i] = &v
		}

		k := models.Key{
			KeyName:              strings.TrimSpace(rec[0]),
			DataType:             strings.TrimSpace(rec[1]),
			NormalRange:          bothEnds(nums[2], nums[3]),
			WarningRange:         bothEnds(nums[4], nums[5]),
			MissingDataAllowance: nums[6],
			EmailAlertRange:      bothEnds(nums[7], nums[8]),
		}
		if k.KeyName == "" || k.DataType == "" {
			return nil, fmt.Errorf("line %d: keyName and dataType are required", line)
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func bothEnds(minV, maxV *float64) *models.Range {
	if minV == nil || maxV == nil {
		return nil
	}
	return &models.Range{Min: minV, Max: maxV}
}

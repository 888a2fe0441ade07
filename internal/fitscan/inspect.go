package fitscan

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/tormoder/fit"
	"github.com/tormoder/fit/dyncrc16"

	"github.com/strukturantcoder/gymdagbokense-sub002/internal/domain"
)

const (
	headerSizeNoCRC = 12
	headerSizeCRC   = 14
)

// Inspect reports container level facts about buf: header signature, file checksum and the
// file_id message. It never fails; unreadable input yields a zero summary.
func Inspect(buf []byte) domain.FileSummary {
	var summary domain.FileSummary
	if len(buf) < headerSizeNoCRC+2 {
		return summary
	}
	size := int(buf[0])
	if size != headerSizeNoCRC && size != headerSizeCRC {
		return summary
	}
	if len(buf) < size || string(buf[8:12]) != ".FIT" {
		return summary
	}

	dataSize := int(binary.LittleEndian.Uint32(buf[4:8]))
	if end := size + dataSize; end+2 <= len(buf) {
		stored := binary.LittleEndian.Uint16(buf[end : end+2])
		summary.CRCValid = stored == dyncrc16.Checksum(buf[:end])
	}

	_, id, err := fit.DecodeHeaderAndFileID(bytes.NewReader(buf))
	if err != nil {
		return summary
	}
	summary.WellFormed = true
	summary.FileType = fmt.Sprint(id.Type)
	summary.Manufacturer = fmt.Sprint(id.Manufacturer)
	summary.Product = fmt.Sprint(id.GetProduct())
	summary.SerialNumber = id.SerialNumber
	if !id.TimeCreated.IsZero() {
		summary.CreatedAt = id.TimeCreated.UTC()
	}
	return summary
}

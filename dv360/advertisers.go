package dv360

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	apperrors "github.com/kbukum/spindle/errors"
)

// Column headers of the advertisers report.
const (
	ColumnAdvertiserID = "Advertiser ID"
	ColumnPartnerID    = "Partner ID"
)

// PartnerGroup is one partner's advertisers.
type PartnerGroup struct {
	Partner     string
	Advertisers []string
}

// PartnerAdvertisers maps partner ids to advertiser ids, keeping the order
// in which partners appear in JSON. The first advertiser of the first
// partner starts the truncating SDF load, so the order is significant.
type PartnerAdvertisers []PartnerGroup

// UnmarshalJSON decodes a JSON object of partner id to advertiser id list.
// Ids may be JSON strings or numbers.
func (p *PartnerAdvertisers) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("partner advertisers: expected object, got %v", tok)
	}

	var out PartnerAdvertisers
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		partner := tok.(string)
		if seen[partner] {
			return fmt.Errorf("partner advertisers: duplicate partner %q", partner)
		}
		seen[partner] = true

		var raw []json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("partner advertisers: partner %q: %w", partner, err)
		}
		ids := make([]string, len(raw))
		for i, elem := range raw {
			id, err := advertiserID(elem)
			if err != nil {
				return fmt.Errorf("partner advertisers: partner %q: %w", partner, err)
			}
			ids[i] = id
		}
		out = append(out, PartnerGroup{Partner: partner, Advertisers: ids})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*p = out
	return nil
}

// advertiserID reads one list element, a JSON string taken as is or a
// JSON number in its literal form.
func advertiserID(elem json.RawMessage) (string, error) {
	elem = bytes.TrimSpace(elem)
	if len(elem) > 0 && elem[0] == '"' {
		var id string
		if err := json.Unmarshal(elem, &id); err != nil {
			return "", err
		}
		return id, nil
	}
	var n json.Number
	if err := json.Unmarshal(elem, &n); err != nil || n == "" {
		return "", fmt.Errorf("advertiser id must be a string or a number, got %s", elem)
	}
	return n.String(), nil
}

// MarshalJSON encodes the partners as a JSON object in order. Advertiser
// ids are written as strings.
func (p PartnerAdvertisers) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, g := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(g.Partner)
		if err != nil {
			return nil, err
		}
		ids := g.Advertisers
		if ids == nil {
			ids = []string{}
		}
		val, err := json.Marshal(ids)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Partners returns the partner ids in order.
func (p PartnerAdvertisers) Partners() []string {
	out := make([]string, len(p))
	for i, g := range p {
		out[i] = g.Partner
	}
	return out
}

// ParseAdvertiserReport reads the advertisers report CSV and returns the
// advertisers of every partner in first-seen order without duplicates.
// Reading stops at the first row with an empty id column: DV360 follows
// the data with a totals row and a summary block.
func ParseAdvertiserReport(r io.Reader) (PartnerAdvertisers, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, apperrors.InvalidInput("report", fmt.Sprintf("read header: %v", err))
	}
	advCol := slices.Index(header, ColumnAdvertiserID)
	partnerCol := slices.Index(header, ColumnPartnerID)
	if advCol < 0 || partnerCol < 0 {
		return nil, apperrors.InvalidInput("report",
			fmt.Sprintf("expected columns %q and %q, got %v", ColumnAdvertiserID, ColumnPartnerID, header))
	}

	var out PartnerAdvertisers
	index := make(map[string]int)
	seen := make(map[string]bool)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.InvalidInput("report", fmt.Sprintf("read row: %v", err))
		}
		if len(rec) <= max(advCol, partnerCol) {
			break
		}
		partner := strings.TrimSpace(rec[partnerCol])
		adv := strings.TrimSpace(rec[advCol])
		if partner == "" || adv == "" {
			break
		}
		if !numeric(partner) || !numeric(adv) {
			continue
		}

		i, ok := index[partner]
		if !ok {
			i = len(out)
			index[partner] = i
			out = append(out, PartnerGroup{Partner: partner})
		}
		if key := partner + "/" + adv; !seen[key] {
			seen[key] = true
			out[i].Advertisers = append(out[i].Advertisers, adv)
		}
	}
	return out, nil
}

func numeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// Package export reads and writes lead batches as CSV and XLSX.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-enrich/internal/extract"
	"github.com/sells-group/lead-enrich/internal/model"
)

// headerAliases maps normalized column names found in CRM exports onto the
// lead's csv tags.
var headerAliases = map[string]string{
	"id": "id", "leadid": "id", "recordid": "id", "contactid": "id",
	"name": "name", "fullname": "name", "contactname": "name", "contact": "name",
	"company": "company", "companyname": "company", "organization": "company", "account": "company", "accountname": "company",
	"title": "title", "jobtitle": "title", "position": "title", "role": "title",
	"phone": "phone", "phonenumber": "phone", "telephone": "phone", "mobile": "phone", "workphone": "phone",
	"email": "email", "emailaddress": "email", "workemail": "email",
	"secondaryemail": "secondary_email", "personalemail": "secondary_email", "email2": "secondary_email",
	"specialty": "specialty", "industry": "specialty",
	"seniority": "seniority",
	"source": "source", "leadsource": "source",
	"lifecyclestage": "lifecycle_stage",
	"zip": "zip_code", "zipcode": "zip_code", "postalcode": "zip_code",
	"salesstatus": "sales_status", "leadstatus": "sales_status",
	"datasource": "data_source",
	"enrichmentmethod": "enrichment_method",
	"processedat": "processed_at",
	"duplicatesfound": "duplicates_found",
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// canonicalHeader maps a raw column name onto a lead csv tag. Unknown
// columns keep their normalized form and are ignored by the decoder.
func canonicalHeader(raw string) string {
	k := nonAlnumRe.ReplaceAllString(strings.ToLower(strings.TrimPrefix(raw, "\ufeff")), "")
	if tag, ok := headerAliases[k]; ok {
		return tag
	}
	return k
}

// Zero timestamps are written as empty cells and empty cells read back as
// zero timestamps.
var (
	timeMarshalers = csvutil.NewMarshalers(
		csvutil.MarshalFunc(func(t time.Time) ([]byte, error) {
			if t.IsZero() {
				return nil, nil
			}
			return []byte(t.UTC().Format(time.RFC3339)), nil
		}),
	)
	timeUnmarshalers = csvutil.NewUnmarshalers(
		csvutil.UnmarshalFunc(func(data []byte, t *time.Time) error {
			s := strings.TrimSpace(string(data))
			if s == "" {
				*t = time.Time{}
				return nil
			}
			for _, layout := range []string{time.RFC3339Nano, time.DateTime, time.DateOnly} {
				if v, err := time.Parse(layout, s); err == nil {
					*t = v
					return nil
				}
			}
			return eris.Errorf("export: unrecognized timestamp %q", s)
		}),
	)
)

// ReadCSV decodes leads from r. The header row may use CRM column names
// ("Full Name", "Email Address", "Job Title"); they are mapped onto lead
// fields and unknown columns are ignored. Rows without a name borrow one
// from the email's local part and are dropped when none can be derived.
// Leads without an id get a fresh one so consolidation can track members.
func ReadCSV(r io.Reader) ([]model.Lead, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	raw, err := cr.Read()
	if err == io.EOF {
		return []model.Lead{}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "export: read csv header")
	}
	header := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, h := range raw {
		c := canonicalHeader(h)
		if seen[c] {
			// First column wins; later duplicates ("Email", "Work Email") are ignored.
			c = fmt.Sprintf("%s_dup%d", c, i)
		}
		seen[c] = true
		header[i] = c
	}

	dec, err := csvutil.NewDecoder(&paddedReader{r: cr, width: len(header)}, header...)
	if err != nil {
		return nil, eris.Wrap(err, "export: create csv decoder")
	}
	dec.WithUnmarshalers(timeUnmarshalers)

	leads := []model.Lead{}
	for row := 1; ; row++ {
		var l model.Lead
		if err := dec.Decode(&l); err == io.EOF {
			break
		} else if err != nil {
			return nil, eris.Wrapf(err, "export: decode csv row %d", row)
		}
		l, ok := Prepare(l)
		if !ok {
			zap.L().Warn("export: skipping row without name or email", zap.Int("row", row))
			continue
		}
		leads = append(leads, l)
	}
	return leads, nil
}

// paddedReader evens out ragged rows, which spreadsheet exports produce
// when trailing cells are empty.
type paddedReader struct {
	r     *csv.Reader
	width int
}

func (p *paddedReader) Read() ([]string, error) {
	rec, err := p.r.Read()
	if err != nil {
		return nil, err
	}
	switch {
	case len(rec) < p.width:
		rec = append(rec, make([]string, p.width-len(rec))...)
	case len(rec) > p.width:
		rec = rec[:p.width]
	}
	return rec, nil
}

// Prepare readies an imported lead for consolidation: a missing name is
// derived from the email, a missing id is generated, provenance defaults to
// an original csv-batch record and the fields are cleaned. It reports false
// when no name can be found.
func Prepare(l model.Lead) (model.Lead, bool) {
	if strings.TrimSpace(l.Name) == "" {
		l.Name = extract.NameFromEmail(l.Email)
	}
	if strings.TrimSpace(l.Name) == "" {
		return l, false
	}
	if strings.TrimSpace(l.ID) == "" {
		l.ID = uuid.NewString()
	}
	if l.DataSource == "" {
		l.DataSource = model.DataSourceOriginal
	}
	if l.EnrichmentMethod == "" {
		l.EnrichmentMethod = model.MethodCSVBatch
	}
	return l.Clean(), true
}

// WriteCSV encodes leads with a header row.
func WriteCSV(w io.Writer, leads []model.Lead) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	enc.WithMarshalers(timeMarshalers)

	if len(leads) == 0 {
		if err := enc.EncodeHeader(model.Lead{}); err != nil {
			return eris.Wrap(err, "export: encode csv header")
		}
	}
	for i, l := range leads {
		if err := enc.Encode(l); err != nil {
			return eris.Wrapf(err, "export: encode lead %d", i)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return nil
}

// records renders leads as a header row followed by one row per lead, in the
// same column layout WriteCSV uses.
func records(leads []model.Lead) ([][]string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, leads); err != nil {
		return nil, err
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "export: reread csv")
	}
	return rows, nil
}

package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CategoryWriter interface {
	Upsert(ctx context.Context, category domain.Category) (*domain.Category, error)
}

// Kind is the entity a CSV file holds, decided by its header row.
type Kind string

const (
	KindProducts   Kind = "products"
	KindCategories Kind = "categories"
)

// DetectKind reads the header row of r. Product files carry a title column,
// category files a type column.
func DetectKind(r io.Reader) (Kind, error) {
	headers, err := csv.NewReader(r).Read()
	if err != nil {
		return "", fmt.Errorf("read headers: %w", err)
	}
	return kindOf(headerIndex(headers))
}

func kindOf(index map[string]int) (Kind, error) {
	_, hasTitle := index["title"]
	_, hasType := index["type"]
	switch {
	case hasTitle:
		return KindProducts, nil
	case hasType:
		return KindCategories, nil
	default:
		return "", errors.New("unrecognised CSV: expected a title or type column")
	}
}

// CSVImporter reads catalog CSV exports and inserts/updates products or
// categories.
type CSVImporter struct {
	reader     *csv.Reader
	products   ProductWriter
	categories CategoryWriter
	logger     zerolog.Logger
}

func NewCSVImporter(r io.Reader, products ProductWriter, categories CategoryWriter, logger zerolog.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:     csvr,
		products:   products,
		categories: categories,
		logger:     logger,
	}
}

// Run parses every row and upserts it. It stops at the first invalid row and
// reports how many rows were written before it.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	kind, err := kindOf(index)
	if err != nil {
		return 0, err
	}
	if kind == KindProducts && i.products == nil || kind == KindCategories && i.categories == nil {
		return 0, fmt.Errorf("no writer configured for %s", kind)
	}

	imported := 0
	for line := 2; ; line++ {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		if blank(record) {
			continue
		}

		switch kind {
		case KindProducts:
			err = i.saveProduct(ctx, record, index)
		case KindCategories:
			err = i.saveCategory(ctx, record, index)
		}
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		imported++
	}

	i.logger.Info().Str("kind", string(kind)).Int("rows", imported).Msg("csv import finished")
	return imported, nil
}

func (i *CSVImporter) saveProduct(ctx context.Context, record []string, index map[string]int) error {
	title := pick(record, index, "title")
	price, err := decimal.NewFromString(pick(record, index, "price"))
	if err != nil {
		return fmt.Errorf("%w: price for %q is not a number", domain.ErrInvalidInput, title)
	}
	cents, err := domain.CentsFromDecimal(price)
	if err != nil {
		return fmt.Errorf("price for %q: %w", title, err)
	}
	categoryID, err := strconv.Atoi(pick(record, index, "categoryId"))
	if err != nil {
		return fmt.Errorf("%w: categoryId for %q is not an integer", domain.ErrInvalidInput, title)
	}
	available := true
	if raw := pick(record, index, "availability"); raw != "" {
		available, err = strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%w: availability for %q must be true or false", domain.ErrInvalidInput, title)
		}
	}

	p := domain.Product{
		ID:          pick(record, index, "id"),
		Title:       title,
		Description: pick(record, index, "description"),
		PriceCents:  cents,
		Available:   available,
		CategoryID:  categoryID,
	}
	if _, err := i.products.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", title, err)
	}
	return nil
}

func (i *CSVImporter) saveCategory(ctx context.Context, record []string, index map[string]int) error {
	name := pick(record, index, "type")
	id, err := strconv.Atoi(pick(record, index, "id"))
	if err != nil {
		return fmt.Errorf("%w: id for category %q is not an integer", domain.ErrInvalidInput, name)
	}
	if _, err := i.categories.Upsert(ctx, domain.Category{ID: id, Type: name}); err != nil {
		return fmt.Errorf("upsert category %q: %w", name, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return idx
}

func blank(record []string) bool {
	return !slices.ContainsFunc(record, func(v string) bool { return strings.TrimSpace(v) != "" })
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

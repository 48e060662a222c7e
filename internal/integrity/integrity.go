// Package integrity audits a store document for records that the API would
// never produce on its own: duplicate accounts, orphaned orders, totals that
// do not add up.
package integrity

import (
	"context"
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/botica/internal/storage"
)

// Severity grades a Finding.
type Severity string

const (
	// Violation marks data that breaks a store invariant.
	Violation Severity = "violation"
	// Info marks data worth knowing about that is still valid.
	Info Severity = "info"
)

// Finding is one problem reported by a Check.
type Finding struct {
	Check    string
	Severity Severity
	Subject  string
	Detail   string
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s] %s %s: %s", f.Severity, f.Check, f.Subject, f.Detail)
}

// Check inspects a document. Checks must not modify it.
type Check struct {
	Name string
	Run  func(ctx context.Context, doc *storage.Document) ([]Finding, error)
}

// Report collects findings in check order.
type Report struct {
	Findings []Finding
}

// Violations counts findings with Violation severity.
func (r *Report) Violations() int {
	var n int
	for _, f := range r.Findings {
		if f.Severity == Violation {
			n++
		}
	}
	return n
}

// DefaultChecks returns every built-in check.
func DefaultChecks() []Check {
	return []Check{
		{Name: "duplicate-emails", Run: duplicateEmails},
		{Name: "orphan-orders", Run: orphanOrders},
		{Name: "order-totals", Run: orderTotals},
		{Name: "dangling-products", Run: danglingProducts},
	}
}

// Run executes checks concurrently against doc.
func Run(ctx context.Context, doc *storage.Document, checks ...Check) (*Report, error) {
	results := make([][]Finding, len(checks))

	g, ctx := errgroup.WithContext(ctx)
	for i, c := range checks {
		g.Go(func() error {
			found, err := c.Run(ctx, doc)
			if err != nil {
				return errors.Wrapf(err, "check %s", c.Name)
			}
			for j := range found {
				found[j].Check = c.Name
			}
			results[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r := &Report{}
	for _, found := range results {
		r.Findings = append(r.Findings, found...)
	}
	return r, nil
}

// duplicateEmails flags accounts sharing an email in any letter case. A bloom
// filter screens the user list so only possible repeats are counted exactly.
func duplicateEmails(ctx context.Context, doc *storage.Document) ([]Finding, error) {
	filter := bloom.NewWithEstimates(uint(max(len(doc.Users), 1)), 0.001)
	candidates := make(map[string]int)
	for i := range doc.Users {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		email := strings.ToLower(strings.TrimSpace(doc.Users[i].Email))
		if filter.TestAndAddString(email) {
			candidates[email] = 0
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make(map[string][]string, len(candidates))
	for i := range doc.Users {
		email := strings.ToLower(strings.TrimSpace(doc.Users[i].Email))
		if _, ok := candidates[email]; ok {
			ids[email] = append(ids[email], doc.Users[i].ID)
		}
	}

	var out []Finding
	for i := range doc.Users {
		email := strings.ToLower(strings.TrimSpace(doc.Users[i].Email))
		users := ids[email]
		if len(users) < 2 || users[0] != doc.Users[i].ID {
			continue
		}
		out = append(out, Finding{
			Severity: Violation,
			Subject:  email,
			Detail:   fmt.Sprintf("shared by users %s", strings.Join(users, ", ")),
		})
	}
	return out, nil
}

func orphanOrders(_ context.Context, doc *storage.Document) ([]Finding, error) {
	users := make(map[string]struct{}, len(doc.Users))
	for i := range doc.Users {
		users[doc.Users[i].ID] = struct{}{}
	}

	var out []Finding
	for i := range doc.Orders {
		o := &doc.Orders[i]
		if _, ok := users[o.UserID]; !ok {
			out = append(out, Finding{
				Severity: Violation,
				Subject:  "order " + o.ID,
				Detail:   fmt.Sprintf("owner %q does not exist", o.UserID),
			})
		}
	}
	return out, nil
}

func orderTotals(_ context.Context, doc *storage.Document) ([]Finding, error) {
	var out []Finding
	for i := range doc.Orders {
		o := &doc.Orders[i]
		sum := decimal.Zero
		for j := range o.Items {
			item := &o.Items[j]
			want := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			if !item.Subtotal.Equal(want) {
				out = append(out, Finding{
					Severity: Violation,
					Subject:  "order " + o.ID,
					Detail: fmt.Sprintf("line %d (%s) subtotal %s, expected %s",
						j, item.ProductID, item.Subtotal, want),
				})
			}
			if item.Quantity < 1 {
				out = append(out, Finding{
					Severity: Violation,
					Subject:  "order " + o.ID,
					Detail:   fmt.Sprintf("line %d (%s) quantity %d", j, item.ProductID, item.Quantity),
				})
			}
			sum = sum.Add(item.Subtotal)
		}
		if !o.Total.Equal(sum) {
			out = append(out, Finding{
				Severity: Violation,
				Subject:  "order " + o.ID,
				Detail:   fmt.Sprintf("total %s, lines sum to %s", o.Total, sum),
			})
		}
	}
	return out, nil
}

// danglingProducts reports order lines whose product left the catalog. Orders
// keep a price snapshot, so this is informational.
func danglingProducts(_ context.Context, doc *storage.Document) ([]Finding, error) {
	catalog := make(map[string]struct{}, len(doc.Products))
	for i := range doc.Products {
		catalog[doc.Products[i].ID] = struct{}{}
	}

	var out []Finding
	for i := range doc.Orders {
		o := &doc.Orders[i]
		for j := range o.Items {
			if _, ok := catalog[o.Items[j].ProductID]; !ok {
				out = append(out, Finding{
					Severity: Info,
					Subject:  "order " + o.ID,
					Detail:   fmt.Sprintf("product %q no longer in catalog", o.Items[j].ProductID),
				})
			}
		}
	}
	return out, nil
}

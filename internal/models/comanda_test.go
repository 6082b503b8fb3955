package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func item(price string, qty int) *LineItem {
	return &LineItem{UnitPrice: decimal.RequireFromString(price), Quantity: qty, Status: ItemPending}
}

func TestComandaAddItemAccumulatesTotal(t *testing.T) {
	c := NewComanda(1, "", time.Now())

	if err := c.AddItem(item("2.50", 3)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if err := c.AddItem(item("0.10", 7)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}

	want := decimal.RequireFromString("8.20")
	if !c.Total.Equal(want) {
		t.Fatalf("total = %s, want %s", c.Total, want)
	}
}

func TestComandaAddItemRevertsPrinted(t *testing.T) {
	now := time.Now()
	c := NewComanda(1, "", now)
	if err := c.MarkPrinted(now); err != nil {
		t.Fatalf("MarkPrinted: %v", err)
	}
	if c.Status != ComandaPrinted || c.PrintedAt == nil {
		t.Fatalf("expected printed with timestamp, got %s", c.Status)
	}

	if err := c.AddItem(item("1", 1)); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	if c.Status != ComandaOpen {
		t.Fatalf("status = %s, want open", c.Status)
	}
}

func TestComandaAddItemRejectedAfterClose(t *testing.T) {
	now := time.Now()
	for _, setup := range []func(*Comanda) error{
		func(c *Comanda) error { return c.Close(now) },
		func(c *Comanda) error { return c.Cancel(now) },
	} {
		c := NewComanda(1, "", now)
		if err := setup(c); err != nil {
			t.Fatalf("setup: %v", err)
		}
		err := c.AddItem(item("1", 1))
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("status %s: err = %v, want ErrInvalidTransition", c.Status, err)
		}
		if !c.Total.IsZero() {
			t.Fatalf("total changed on rejected item: %s", c.Total)
		}
	}
}

func TestComandaLifecycle(t *testing.T) {
	now := time.Now()
	c := NewComanda(1, "", now)

	if err := c.Finalize(now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("finalize from open: err = %v", err)
	}
	if err := c.Close(now); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if c.Status != ComandaAwaitingPayment || c.ClosedAt == nil {
		t.Fatalf("after close: %s", c.Status)
	}
	if err := c.MarkPrinted(now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("print after close: err = %v", err)
	}
	if err := c.Finalize(now); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if c.Status != ComandaClosed {
		t.Fatalf("after finalize: %s", c.Status)
	}
	if err := c.Cancel(now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel closed comanda: err = %v", err)
	}
}

func TestComandaCancelFromEveryActiveState(t *testing.T) {
	now := time.Now()
	states := []ComandaStatus{ComandaOpen, ComandaPrinted, ComandaAwaitingPayment}
	for _, st := range states {
		c := &Comanda{Status: st, CallingWaiter: true}
		if err := c.Cancel(now); err != nil {
			t.Fatalf("cancel from %s: %v", st, err)
		}
		if c.Status != ComandaCancelled || c.CallingWaiter {
			t.Fatalf("cancel from %s left status=%s calling=%v", st, c.Status, c.CallingWaiter)
		}
	}
}

func TestAggregateItemStatus(t *testing.T) {
	cases := []struct {
		name string
		in   []ItemStatus
		want string
	}{
		{"empty", nil, AggregatePending},
		{"all ready", []ItemStatus{ItemReady, ItemReady}, AggregateReady},
		{"any preparing", []ItemStatus{ItemReady, ItemPreparing, ItemPending}, AggregatePreparing},
		{"all pending", []ItemStatus{ItemPending, ItemPending}, AggregatePending},
		{"ready and pending", []ItemStatus{ItemReady, ItemPending}, AggregatePartial},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AggregateItemStatus(tc.in); got != tc.want {
				t.Fatalf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestParseItemStatus(t *testing.T) {
	if _, err := ParseItemStatus("burnt"); err == nil {
		t.Fatal("expected error for unknown status")
	}
	if st, err := ParseItemStatus("ready"); err != nil || st != ItemReady {
		t.Fatalf("ParseItemStatus(ready) = %s, %v", st, err)
	}
}

package resilience

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestNewPacer_Interval(t *testing.T) {
	p := NewPacer(time.Second, 1)
	if p.Limit() != rate.Every(time.Second) {
		t.Errorf("expected one token per second, got %v", p.Limit())
	}
	if p.Burst() != 1 {
		t.Errorf("expected burst 1, got %d", p.Burst())
	}
}

func TestNewPacer_DisabledAndBurstFloor(t *testing.T) {
	p := NewPacer(0, 0)
	if p.Limit() != rate.Inf {
		t.Errorf("expected unlimited, got %v", p.Limit())
	}
	if p.Burst() != 1 {
		t.Errorf("expected burst floor of 1, got %d", p.Burst())
	}
}

func TestNewPacer_SecondWaitBlocks(t *testing.T) {
	p := NewPacer(time.Hour, 1)
	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("first token should be immediate: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.Wait(ctx); err == nil {
		t.Error("second wait should not get a token within the deadline")
	}
}

func TestUnpaced(t *testing.T) {
	p := Unpaced()
	for i := 0; i < 1000; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

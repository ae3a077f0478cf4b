package deliverylog

import (
	"context"
	"testing"
)

func TestStore_NilSafe(t *testing.T) {
	var s *Store
	if s.Enabled() {
		t.Error("nil store should report disabled")
	}
	if err := s.Record(context.Background(), Delivery{RequestID: "req_1"}); err != nil {
		t.Errorf("Record on nil store should be a no-op: %v", err)
	}

	s = NewStore(nil)
	if s.Enabled() {
		t.Error("store without a pool should report disabled")
	}
	if err := s.Record(context.Background(), Delivery{RequestID: "req_1"}); err != nil {
		t.Errorf("Record without a pool should be a no-op: %v", err)
	}
}

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTransition(t *testing.T) {
	before := testutil.ToFloat64(TransitionsTotal.WithLabelValues("like", "created"))
	RecordTransition("like", "created")
	assert.Equal(t, before+1, testutil.ToFloat64(TransitionsTotal.WithLabelValues("like", "created")))
}

func TestRecordGuardConflict(t *testing.T) {
	retried := testutil.ToFloat64(GuardConflictsTotal.WithLabelValues("retried"))
	exhausted := testutil.ToFloat64(GuardConflictsTotal.WithLabelValues("exhausted"))

	RecordGuardConflict(false)
	RecordGuardConflict(true)
	RecordGuardConflict(true)

	assert.Equal(t, retried+1, testutil.ToFloat64(GuardConflictsTotal.WithLabelValues("retried")))
	assert.Equal(t, exhausted+2, testutil.ToFloat64(GuardConflictsTotal.WithLabelValues("exhausted")))
}

func TestRecordEventDelivery(t *testing.T) {
	ok := testutil.ToFloat64(EventsDeliveredTotal.WithLabelValues("mutual_match", "ok"))
	failed := testutil.ToFloat64(EventsDeliveredTotal.WithLabelValues("mutual_match", "error"))

	RecordEventDelivery("mutual_match", nil)
	RecordEventDelivery("mutual_match", errors.New("offline"))

	assert.Equal(t, ok+1, testutil.ToFloat64(EventsDeliveredTotal.WithLabelValues("mutual_match", "ok")))
	assert.Equal(t, failed+1, testutil.ToFloat64(EventsDeliveredTotal.WithLabelValues("mutual_match", "error")))
}

func TestRecordRanking(t *testing.T) {
	RecordRanking(10, 3, 5*time.Millisecond)
	assert.Equal(t, 2, testutil.CollectAndCount(RankedCandidates))
}

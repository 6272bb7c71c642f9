package kv

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dbReadCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disk_db_read_count_total",
		Help: "Total number of database reads.",
	})
	dbReadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disk_db_read_bytes_total",
		Help: "Total number of bytes read from the database.",
	})
	dbWriteCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disk_db_write_count_total",
		Help: "Total number of database writes.",
	})
	dbWriteBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disk_db_write_bytes_total",
		Help: "Total number of bytes written to the database.",
	})
	dbBatchCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disk_db_atomic_batch_count_total",
		Help: "Total number of atomic batches committed to the database.",
	})
)

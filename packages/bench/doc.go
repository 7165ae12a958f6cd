// Package bench measures request latency by replaying a request list many
// times across a pool of workers.
//
// Workers claim iterations from a shared counter until the requested number
// is reached. Each iteration starts a fresh response store and sends the
// full request list in order, so chained placeholders resolve within the
// iteration and never leak between iterations. A failed request is counted
// and skipped while the rest of the list still runs.
//
// Latencies feed an HDR histogram for percentile statistics and a raw
// sample slice for the equal-width latency histogram. Assertions never run
// here; the benchmark exercises requests only.
package bench

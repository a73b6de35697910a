// Package cache is the key-value gateway used for idempotency records and
// read-through response caches.
//
// Read keys are scoped by resource and pagination:
//
//	employees:all
//	departments:all
//	departments:<id>:employees:page=<p>&limit=<l>
//	departments:<id>:employeesWithLeaves:page=<p>&limit=<l>
//
// Any mutation that changes a department's employee set removes every key
// under departments:<id>:employees* (both list variants, all pages).
package cache

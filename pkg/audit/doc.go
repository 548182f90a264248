// Package audit records sensitive actions append-only and best-effort:
// recording never blocks or fails the action being audited. Reading
// recorded events is restricted to the originating actor or an elevated
// role, mirroring the storage-layer row-level policy.
package audit

/*
Package dump provides I/O operations for snapshots of ledger states.

A snapshot keeps the ledger summary along with its raw storage, so the state
can be restored into a fresh store, moved between storage backends or used as
a test fixture. For state reproducibility, every dump carries the state digest
the restored ledger must match.

The package works with dumps stored in the file system using human-readable
encoding.
*/
package dump

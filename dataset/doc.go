// Package dataset provides content-hash-versioned OHLCV dataset management:
// CSV files are catalogued in a JSON registry under a generated ID, each
// record carrying a SHA-256 digest of the file's content, and served into
// the engine as a BarSource. VerifyHash lets
// a caller detect a source file that mutated after registration, which
// would silently break reproducibility of any run recorded against it.
package dataset

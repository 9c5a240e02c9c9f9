// Package tdx implements attestation providers for the
// confidential-compute decryption oracle: local TDX quote generation,
// remote quote fetching with local DCAP verification, and a dummy
// provider for environments without TEE hardware.
package tdx

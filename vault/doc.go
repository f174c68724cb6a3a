// Package vault provides [dropin.VaultClient] implementations: a redis backed
// store for self-hosted vaults and a REST client for remote vault services.
package vault

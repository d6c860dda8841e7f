package swagger

// @Tag.name Meta
// @Tag.description Liveness and version probes.

// @Tag.name Webhooks
// @Tag.description GitHub push deliveries that trigger commit payouts.

// @Tag.name Status
// @Tag.description Cached payout, transaction and repository views.

// @Tag.name Config
// @Tag.description Static configuration for dashboards and donation widgets.

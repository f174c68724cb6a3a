// Package dropin is the coordination core of a checkout drop-in widget. It
// decides which payment options a merchant configured checkout offers, waits
// for each option's asynchronous setup, tracks the returning customer's
// vaulted payment methods and keeps a single notion of the currently
// selectable payment method.
//
// # Lifecycle
//
// Build a [Model] with [New] from merchant [Settings], registering one
// [Integration] per payment option with [WithIntegration] and, for returning
// customers, a [VaultClient] with [WithVaultClient]. [Model.Init] then:
//
//   - resolves paymentOptionPriority into a deduplicated list of known options;
//   - runs every option's enablement probe concurrently, rejecting options
//     whose probe returns false or fails;
//   - registers the accepted options (and auxiliary dependencies such as the
//     data collector) with the [DependencyTracker];
//   - loads the vaulted methods and selects the first one;
//   - starts every accepted integration, then every auxiliary [Dependency]
//     registered with [WithDependency]. An auxiliary dependency turned on in
//     the settings without a registration fails its setup.
//
// [Model.Teardown] cancels the integrations and silences the model.
//
// # Events
//
// The view layer subscribes to the [Bus] returned by [Model.Bus] (or passed in
// with [WithBus]). [EventAsyncDependenciesReady] fires exactly once, when no
// dependency is initializing any more. [EventPaymentMethodRequestable] and
// [EventNoPaymentMethodRequestable] only fire when requestability actually
// changes, and only after [Model.ConfirmDropinReady].
//
// # Errors
//
// Failures are reported as [*Error] values. Kinds for which
// [ErrorKind.Fatal] is true abort [New] or [Model.Init]; all others are
// logged, published and scoped to the payment option they belong to.
package dropin

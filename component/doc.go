// Package component defines the lifecycle contract for long-lived pieces of
// a networkable client application, such as configured sessions.
//
//   - Component: Start, Stop and Health
//   - Describable: a one-line summary for startup output
//   - Registry: starts components in registration order and stops them in
//     reverse
package component

// Package mode defines the supported boot-environment ecosystems and the
// static per-ecosystem rules the rest of the system is parameterized by:
// remote catalog endpoints, on-disk plugin folder, the enabled/disabled
// extension pair, and display strings.
//
// Mode values are plain constants with pure lookup methods. There is no
// state and no error path; an unknown or Select mode yields empty strings.
package mode

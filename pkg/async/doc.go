// Package async provides the fixed-size worker pool that runs background
// plugin operations: catalog fetches, downloads, and lifecycle work.
//
// Jobs are fire-and-forget. A job's error is logged but not returned to
// the submitter; callers that care about the outcome observe the shared
// state the job mutates instead.
package async

// Package falcon generates FortiOS configuration modules from the CMDB schema
// and checks configuration requests against firmware revisions.
package falcon

// Version is the falcon release version.
const Version = "0.1.0"

// Package audit records the schedule audit trail.
//
// Every job mutation attempted through the API leaves one Entry: who
// acted (user or agent), on which garden and job, what they tried, and
// whether the provenance policy allowed it. Denied attempts are recorded
// too, so an owner can see when their agent reached for a job it does not
// own.
//
// Entries live in the audit_logs table of the entity store and are listed
// newest first.
package audit

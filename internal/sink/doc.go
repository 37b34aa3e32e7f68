// Package sink exports run results to external systems: the JSON analysis
// of each run to S3 and one Kafka message per flagged user.
package sink

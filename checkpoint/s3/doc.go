// Package s3 provides a checkpoint.Store backed by Amazon S3, plus a
// DynamoDB-based LatestPointer for atomically tracking the most recent
// committed checkpoint of a training run.
package s3

// Package cloudwriter uploads telemetry archives to object storage.
package cloudwriter

// CloudWriter buffers writes and uploads the whole object on Close.
type CloudWriter interface {
	Write(data []byte) (int, error)
	Close() error
}

type CloudWriterFactory interface {
	NewWriter(bucket, objectPath string) (CloudWriter, error)
}

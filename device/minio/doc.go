// Package minio provides a block Device on MinIO and other S3-compatible storage.
//
// It stores the same object layout as the s3 package ("<prefix>/<blockno>.blk",
// codec frames), so a disk written through one can be read through the other.
//
// # Basic Usage
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	dev := miniodev.New(client, "disks", "root", 4096)
//	cache, _ := bcache.New(bcache.WithBlockSize(4096), bcache.WithDevice(1, dev))
package minio

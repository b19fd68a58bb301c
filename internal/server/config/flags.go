package config

import (
	"flag"
	"os"
	"time"

	"campaignspace/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   bearer-token HMAC secret key
//	-f int      source fetch timeout, seconds
//	-u string   S3 root user
//	-p string   S3 root password
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-i string   input bucket name
//	-o string   output bucket name
//	-q string   AMQP URL for the notification feed (empty disables it)
//	-n string   notification queue name
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-f", "-u", "-p", "-g", "-e", "-i", "-o", "-q", "-n"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	fetchTimeout := fs.Int("f", int(config.FetchTimeout.Seconds()), "source fetch timeout (in seconds)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3InputBucket, "i", config.S3InputBucket, "input bucket")
	fs.StringVar(&config.S3OutputBucket, "o", config.S3OutputBucket, "output bucket")
	fs.StringVar(&config.AMQPURL, "q", config.AMQPURL, "AMQP URL")
	fs.StringVar(&config.NotifyQueue, "n", config.NotifyQueue, "notification queue")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.FetchTimeout = time.Duration(*fetchTimeout) * time.Second
}

package httpserver

import "time"

// ShutdownTimeout controls how long to wait for graceful shutdowns. In-flight
// video uploads stream to object storage within the request, so shutdown
// waits long enough to drain them.
const ShutdownTimeout = 30 * time.Second

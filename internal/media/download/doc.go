// Package download fetches the reference video for the analysis graph.
//
// Direct media links (a URL whose path ends in a video extension) are
// streamed over HTTP with a size cap and sampled progress logging. Anything
// else is treated as a share page and handed to yt-dlp, which resolves the
// platform-specific media URL.
package download

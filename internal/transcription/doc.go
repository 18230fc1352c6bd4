// Package transcription wraps WhisperX speech recognition for uploaded
// recordings.
//
// WhisperX is launched through uvx so no Python environment has to be
// provisioned ahead of time. Uploads are stored under UUID names in the
// configured upload directory and removed, together with the WhisperX output
// files, once the transcript has been read.
package transcription

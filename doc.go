/*
Package sframe implements SFrame: per-frame media encryption bound to a
compact header carried alongside the ciphertext, independent of the
transport that moves the frame.

A Context owns at most one outgoing key (for a local sender) and any
number of incoming keys (one Receiver per remote key id). Call
SetSenderEncryptionKey once to start encrypting, and SetReceiverEncryptionKey
once per remote participant before decrypting frames from them.

Sub-packages pkg/header, pkg/sframeiv, and pkg/framecrypto implement the
wire header codec, nonce construction, and the AEAD-plus-truncated-HMAC
frame transform respectively, and are usable on their own by callers that
need lower-level control than Context provides.
*/
package sframe

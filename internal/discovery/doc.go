// Package discovery provides mDNS-based discovery of Android debug bridge
// services.
//
// Android 11+ advertises wireless debugging as "_adb-tls-connect._tcp";
// devices running adbd over plain TCP may advertise "_adb._tcp". Browsing
// these services catches devices the TCP sweep would also find, often
// faster, but mDNS visibility depends on the network, so results from this
// package only supplement the sweep and are marked with their own discovery
// source.
package discovery

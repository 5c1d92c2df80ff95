/*
Fixpdb renumbers the protein residues of a PDB file so they follow the
numbering of a reference sequence from UniProt.

Usage:

	fixpdb -i in.pdb -o out.pdb [-r P00533 [-r ...]] [-c fixpdb.yaml] [--restart]
	fixpdb --pdb 1abc -o out.pdb [-r ...]
	fixpdb summary -i in.pdb

Every protein chain is aligned against the references given with -r.
Chains that match none of them are sent, one at a time, to an NCBI BLAST
search of swissprot and the top hit is added to the references. If some
protein chain still has no reference, nothing is written and the exit
status is 1. Residues that do not line up with a reference residue keep
their old number. Chains that are not protein are left alone.

If the input has no chain labels, or a single chain called X, chains
are rebuilt first from the distances between C-alpha atoms.

The references can be given as repeated -r flags or as one quoted, space
separated list. Settings come from the optional config file and FIXPDB_*
environment variables, for example

	FIXPDB_CACHE_REDIS_ADDR=localhost:6379
	FIXPDB_REMOTE_BLAST_TIMEOUT=20m
	FIXPDB_METRICS_TEXTFILE=/var/lib/node_exporter/fixpdb.prom

Input may be gzip compressed. mmCIF files are not read. With --pdb the
structure is downloaded from RCSB, or from PDBe if remote.pdb_site is
pdbe.

The summary command prints atom, residue and chain counts and the
sequence of each chain.
*/
package main

package site

// ExampleInput is a small human phosphosite list for trying the tool out
const ExampleInput = `P06732_CKM_T108
O15273_TCAP_S161
Q96I15_SCLY_S129
Q8TAD8_SNIP1_S99
P23327_HRC_S145
P23327_HRC_S139, S145
O94874_UFL1_S458
Q9NP74_PALMD_S486
Q9H1E3_NUCKS1_S79`
